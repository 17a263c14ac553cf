package minit

import (
	"runtime"

	"github.com/memoio/go-betawallet/build"
)

func PrintVersion() {
	logger.Infof("BetaWallet version: %s", build.UserVersion())
	logger.Infof("System version: %s", runtime.GOARCH+"/"+runtime.GOOS)
	logger.Infof("Golang version: %s", runtime.Version())
}
