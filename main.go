package main

import "github.com/jsphweid/stemviz/cmd"

func main() {
	cmd.Execute()
}
