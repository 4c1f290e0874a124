// Command selectctl 对任意 database/sql 数据源执行 SELECT / COUNT 查询
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	appErrors "selectkit/errors"
	"selectkit/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.GetLogger().Debug(ctx, "selectctl: error stack", logging.String("stack", appErrors.GetStack(err)))
		code := appErrors.GetErrorCode(appErrors.Normalize(err))
		fmt.Fprintf(os.Stderr, "selectctl: [%s] %v\n", code, err)
		stop()
		os.Exit(1)
	}
}
