package main

import "github.com/flywave/go-hemesh/cmd/hemesh/cmd"

func main() {
	cmd.Execute()
}
