package main

import (
	_ "time/tzdata"

	"github.com/opsportal/ops-portal/cmd"
)

func main() {
	cmd.Execute()
}
