package main

import "github.com/nmussy/cdk-sdk-versions/internal/cli"

func main() {
	cli.Execute()
}
