// Command relflow automates releases of projects kept on develop and master branches.
package main

import "relflow/internal/cli"

func main() {
	cli.Execute()
}
