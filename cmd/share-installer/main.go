package main

import "github.com/oshokin/build-installer/cmd/share-installer/cmd"

func main() {
	cmd.Execute()
}
