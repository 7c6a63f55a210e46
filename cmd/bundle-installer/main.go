package main

import "github.com/oshokin/build-installer/cmd/bundle-installer/cmd"

func main() {
	cmd.Execute()
}
