package main

import "os"

func main() {
	os.Exit(RunCmd(os.Args[1:]))
}
