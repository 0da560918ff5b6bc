package main

import "github.com/masmgr/filehistory-go/cmd"

func main() {
	cmd.Run()
}
