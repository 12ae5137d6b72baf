// main is the entry point for the diffcover CLI.
package main

import (
	"github.com/huangsam/diffcover/cmd"
	"github.com/huangsam/diffcover/internal/contract"
	"github.com/huangsam/diffcover/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseStores()
	defer func() {
		if err := cmd.StopProfiling(); err != nil {
			contract.LogWarn("Failed to stop profiling", err)
		}
	}()

	if err := cmd.Execute(); err != nil {
		iocache.CloseStores()
		contract.LogFatal("Command failed", err)
	}
}
