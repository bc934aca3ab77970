package main

import "github.com/oshokin/app-packager/cmd/app-packager/cmd"

func main() {
	cmd.Execute()
}
