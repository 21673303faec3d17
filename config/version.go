package config

import (
	"fmt"
)

var (
	version = "0.1"
	AppName = "update-ddns"
	intro   = "Update, if necessary, the A/AAAA records of DNS names at a DDNS provider."
	date    = "unknown"
)

func Version() string {
	return fmt.Sprintf("%s %s, built at %s", AppName, version, date)
}

func ShowVersion() {
	fmt.Printf("%s\n%s\n", Version(), intro)
}
