package main

import "github.com/AdguardTeam/dnsreport/internal/cmd"

func main() {
	cmd.Main()
}
