package main

import "github.com/frahmantamala/payroll-advance/cmd"

func main() {
	cmd.Execute()
}
