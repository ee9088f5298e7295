package main

import "github.com/sajjad-MoBe/TupleSpace/node/src/cmd"

func main() {
	cmd.ExecuteServer()
}
