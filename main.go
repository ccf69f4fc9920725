package main

import "github.com/ValentinKolb/connectkit/cmd"

func main() {
	cmd.Execute()
}
