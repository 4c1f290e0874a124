package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	core "selectkit/data/db"
	sqlsel "selectkit/data/db/sql"
	appErrors "selectkit/errors"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:           "selectctl",
		Short:         "Run SELECT and COUNT queries against a SQL database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v, cfgFile); err != nil {
				return err
			}
			return setupLogger(v)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./selectkit.yaml or ~/.config/selectkit/selectkit.yaml)")
	flags.String("driver", "sqlite", "database/sql driver: sqlite, postgres, mysql")
	flags.String("dsn", "", "data source name passed to the driver")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	_ = v.BindPFlag("driver", flags.Lookup("driver"))
	_ = v.BindPFlag("dsn", flags.Lookup("dsn"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(newSelectCmd(v), newCountCmd(v))
	return root
}

func newSelectCmd(v *viper.Viper) *cobra.Command {
	var (
		spec   sqlsel.QuerySpec
		params []string
		limit  uint64
		offset uint64
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Run a SELECT and print rows as tab-separated values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("limit") {
				spec.Limit = sqlsel.Uint(limit)
			}
			if cmd.Flags().Changed("offset") {
				spec.Offset = sqlsel.Uint(offset)
			}
			spec.Params = parseParams(params)

			ctx := cmd.Context()
			db, err := openDB(ctx, v)
			if err != nil {
				return err
			}
			defer db.Close()

			var cols []string
			rows, err := sqlsel.SelectFrom(ctx, db, spec, func(row core.IRowReader) ([]any, error) {
				if cols == nil {
					c, err := row.Columns()
					if err != nil {
						return nil, err
					}
					cols = c
				}
				return sqlsel.ScanValues(row)
			})
			if err != nil {
				return err
			}
			if cols == nil {
				if cols, err = resultColumns(ctx, db, spec); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, strings.Join(cols, "\t"))
			for _, r := range rows {
				writeRow(out, r)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&spec.From, "from", "", "FROM clause (table or join expression)")
	f.StringArrayVar(&spec.Columns, "column", nil, "column expression, repeatable (default *)")
	f.StringVar(&spec.Where, "where", "", "WHERE clause")
	f.StringVar(&spec.GroupBy, "group-by", "", "GROUP BY clause")
	f.StringVar(&spec.Having, "having", "", "HAVING clause")
	f.StringVar(&spec.OrderBy, "order-by", "", "ORDER BY clause")
	f.Uint64Var(&limit, "limit", 0, "LIMIT")
	f.Uint64Var(&offset, "offset", 0, "OFFSET (ignored without --limit)")
	f.StringArrayVar(&params, "param", nil, "bind parameter, repeatable; see parseParams for typing")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newCountCmd(v *viper.Viper) *cobra.Command {
	var (
		spec   sqlsel.CountSpec
		params []string
	)

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Run SELECT count(...) and print the number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.Params = parseParams(params)

			db, err := openDB(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := sqlsel.CountFrom(cmd.Context(), db, spec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&spec.From, "from", "", "FROM clause (table or join expression)")
	f.StringArrayVar(&spec.Columns, "column", nil, "counted expression, repeatable (default *)")
	f.StringVar(&spec.Where, "where", "", "WHERE clause")
	f.StringArrayVar(&params, "param", nil, "bind parameter, repeatable")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

// resultColumns 结果集为空时无法从行回调取得列名，改为直接执行一次预编译语句读取
func resultColumns(ctx context.Context, p core.IPreparer, spec sqlsel.QuerySpec) ([]string, error) {
	stmt, err := sqlsel.PrepareSelectFrom(ctx, p, spec)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.Query(ctx)
	if err != nil {
		return nil, appErrors.WrapError(err, appErrors.ErrCodeExecute, "selectctl: query columns failed")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, appErrors.WrapError(err, appErrors.ErrCodeRead, "selectctl: read columns failed")
	}
	return cols, nil
}

// parseParams 将命令行参数转换为绑定值：
//
//	null        -> nil
//	true/false  -> bool
//	整数 / 小数 -> int64 / float64
//	str:xxx     -> 字符串 "xxx"（强制按字符串处理）
//	其他        -> 原样字符串
func parseParams(raw []string) []any {
	if len(raw) == 0 {
		return nil
	}
	out := make([]any, len(raw))
	for i, s := range raw {
		out[i] = parseParam(s)
	}
	return out
}

func parseParam(s string) any {
	if rest, ok := strings.CutPrefix(s, "str:"); ok {
		return rest
	}
	switch strings.ToLower(s) {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func writeRow(w io.Writer, row []any) {
	cells := make([]string, len(row))
	for i, v := range row {
		switch val := v.(type) {
		case nil:
			cells[i] = "NULL"
		case []byte:
			cells[i] = string(val)
		default:
			cells[i] = fmt.Sprint(val)
		}
	}
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}
