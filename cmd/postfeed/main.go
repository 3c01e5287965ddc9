package main

import "github.com/vietddude/postfeed/internal/cli"

func main() {
	cli.Execute()
}
