// Command maturity tracks products through the V1-V5 maturity pipeline.
package main

import "maturity/internal/cli"

func main() {
	cli.Execute()
}
