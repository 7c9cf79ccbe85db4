/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
hsqlcore-shell is a line-edited REPL for inspecting a storage-substrate
data directory directly: create a table, add and dump rows, walk an
index in key order, and trigger a defrag, all without a SQL layer
sitting in front of the engine.

Usage:

	hsqlcore-shell --data ./mydb
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"hsqlcore/internal/storage"
	"hsqlcore/internal/storage/rowcodec"
	"hsqlcore/internal/storage/sqltype"
	"hsqlcore/pkg/cli"
)

const version = "1.0.0"

var dataDir = flag.String("data", "./hsqlcore-data", "data directory the engine opens tables under")

// shellTable is the two-column schema every table this shell creates
// uses: an INTEGER primary key and a free-text VARCHAR value, enough
// to exercise every row-store operation without a SQL catalog.
func shellTable() ([]rowcodec.IndexDef, int) {
	idx := rowcodec.IndexDef{
		ID:         0,
		Columns:    []int{0},
		Ascending:  []bool{true},
		NullsLast:  []bool{true},
		Unique:     true,
		PrimaryKey: true,
	}
	return []rowcodec.IndexDef{idx}, 2
}

func main() {
	flag.Parse()
	cli.SetColorsEnabled(term.IsTerminal(int(os.Stdout.Fd())))

	engine, err := storage.NewEngine(storage.Config{DataDir: *dataDir, CacheMaxRows: 4096})
	if err != nil {
		cli.PrintError("opening %s: %v", *dataDir, err)
		os.Exit(1)
	}
	defer engine.Close()

	printBanner()

	rl, err := readline.New("hsqlcore> ")
	if err != nil {
		cli.PrintError("starting readline: %v", err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !dispatch(engine, line) {
			break
		}
	}
}

// dispatch runs one command line and returns false if the shell
// should exit.
func dispatch(engine *storage.Engine, line string) bool {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "exit", "quit":
		return false
	case "help":
		printHelp()
	case "create":
		cmdCreate(engine, args)
	case "drop":
		cmdDrop(engine, args)
	case "insert":
		cmdInsert(engine, args)
	case "get":
		cmdGet(engine, args)
	case "delete":
		cmdDelete(engine, args)
	case "dump":
		cmdDump(engine, args)
	case "stats":
		cmdStats(engine)
	case "defrag":
		cmdDefrag(engine, args)
	default:
		cli.PrintError("unknown command %q (try \"help\")", cmd)
	}
	return true
}

func cmdCreate(engine *storage.Engine, args []string) {
	if len(args) != 1 {
		cli.NewCLIError("create requires a table name").WithSuggestion("create <table>").Print()
		return
	}
	indexes, numColumns := shellTable()
	if _, err := engine.CreateTable(args[0], indexes, numColumns, nil); err != nil {
		cli.PrintError("create %s: %v", args[0], err)
		return
	}
	cli.PrintSuccess("table %s created", args[0])
}

func cmdDrop(engine *storage.Engine, args []string) {
	if len(args) != 1 {
		cli.NewCLIError("drop requires a table name").WithSuggestion("drop <table>").Print()
		return
	}
	if !cli.PromptYesNo(fmt.Sprintf("drop table %s and delete its data file", args[0]), false) {
		cli.PrintInfo("drop cancelled")
		return
	}
	if err := engine.DropTable(args[0]); err != nil {
		cli.PrintError("drop %s: %v", args[0], err)
		return
	}
	cli.PrintSuccess("table %s dropped", args[0])
}

func cmdInsert(engine *storage.Engine, args []string) {
	if len(args) < 2 {
		cli.NewCLIError("insert requires a table, key, and value").
			WithSuggestion("insert <table> <key> <value>").Print()
		return
	}
	table, keyStr := args[0], args[1]
	key, err := strconv.ParseInt(keyStr, 10, 64)
	if err != nil {
		cli.PrintError("key %q is not an integer", keyStr)
		return
	}
	value := strings.Join(args[2:], " ")

	store, err := engine.OpenTable(table)
	if err != nil {
		cli.PrintError("insert into %s: %v", table, err)
		return
	}
	row := rowcodec.NewRow([]sqltype.Value{
		{Kind: sqltype.KindInteger, Int64: key},
		stringValue(value),
	}, 1)
	if err := store.Add(row); err != nil {
		cli.PrintError("insert into %s: %v", table, err)
		return
	}
	cli.PrintSuccess("inserted key %d at position %d", key, row.Position)
}

func stringValue(s string) sqltype.Value {
	if s == "" {
		return sqltype.Null()
	}
	return sqltype.Value{Kind: sqltype.KindVarchar, Str: s}
}

func cmdGet(engine *storage.Engine, args []string) {
	if len(args) != 2 {
		cli.NewCLIError("get requires a table and a position").WithSuggestion("get <table> <position>").Print()
		return
	}
	pos, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		cli.PrintError("position %q is not an integer", args[1])
		return
	}
	store, err := engine.OpenTable(args[0])
	if err != nil {
		cli.PrintError("get from %s: %v", args[0], err)
		return
	}
	row, err := store.Get(pos)
	if err != nil {
		cli.PrintError("get %s[%d]: %v", args[0], pos, err)
		return
	}
	printRows([]*rowcodec.Row{row})
}

func cmdDelete(engine *storage.Engine, args []string) {
	if len(args) != 2 {
		cli.NewCLIError("delete requires a table and a position").WithSuggestion("delete <table> <position>").Print()
		return
	}
	pos, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		cli.PrintError("position %q is not an integer", args[1])
		return
	}
	store, err := engine.OpenTable(args[0])
	if err != nil {
		cli.PrintError("delete from %s: %v", args[0], err)
		return
	}
	row, err := store.Get(pos)
	if err != nil {
		cli.PrintError("delete %s[%d]: %v", args[0], pos, err)
		return
	}
	if err := store.Delete(row); err != nil {
		cli.PrintError("delete %s[%d]: %v", args[0], pos, err)
		return
	}
	cli.PrintSuccess("deleted %s[%d]", args[0], pos)
}

func cmdDump(engine *storage.Engine, args []string) {
	if len(args) < 1 {
		cli.NewCLIError("dump requires a table name").WithSuggestion("dump <table> [limit]").Print()
		return
	}
	limit := 0
	if len(args) >= 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			cli.PrintError("limit %q is not an integer", args[1])
			return
		}
		limit = n
	}

	store, err := engine.OpenTable(args[0])
	if err != nil {
		cli.PrintError("dump %s: %v", args[0], err)
		return
	}

	var rows []*rowcodec.Row
	it := store.RowIterator()
	for limit == 0 || len(rows) < limit {
		row, err := it.Next()
		if err != nil {
			cli.PrintError("dump %s: %v", args[0], err)
			return
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	printRows(rows)
}

func printRows(rows []*rowcodec.Row) {
	t := cli.NewTable("position", "key", "value")
	for _, row := range rows {
		key := "NULL"
		if len(row.Values) > 0 && !row.Values[0].IsNull() {
			key = strconv.FormatInt(row.Values[0].Int64, 10)
		}
		value := "NULL"
		if len(row.Values) > 1 && !row.Values[1].IsNull() {
			value = row.Values[1].Str
		}
		t.AddRow(strconv.FormatInt(row.Position, 10), key, value)
	}
	t.Print()
}

func cmdStats(engine *storage.Engine) {
	stats, err := engine.Stats()
	if err != nil {
		cli.PrintError("stats: %v", err)
		return
	}
	cli.KeyValue("Tables", strconv.Itoa(stats.TableCount), 14)
	cli.KeyValue("Rows", strconv.FormatInt(stats.TotalRows, 10), 14)
	cli.KeyValue("Data size", humanize.Bytes(uint64(stats.DataSize)), 14)
}

func cmdDefrag(engine *storage.Engine, args []string) {
	if len(args) == 1 {
		spinner := cli.NewSpinner(fmt.Sprintf("defragmenting %s", args[0]))
		spinner.Start()
		result, err := engine.DefragmentTable(args[0])
		if err != nil {
			spinner.StopWithError(fmt.Sprintf("defrag %s failed", args[0]))
			cli.PrintError("defrag %s: %v", args[0], err)
			return
		}
		spinner.StopWithSuccess(fmt.Sprintf("%s: %d rows, %s -> %s", args[0], result.RowCount,
			humanize.Bytes(uint64(result.OldSize)), humanize.Bytes(uint64(result.NewSize))))
		return
	}

	spinner := cli.NewSpinner("defragmenting every disk-resident table")
	spinner.Start()
	results, err := engine.DefragmentAll()
	if err != nil {
		spinner.StopWithError("defrag failed")
		cli.PrintError("defrag: %v", err)
		return
	}
	spinner.StopWithSuccess(fmt.Sprintf("defragmented %d table(s)", len(results)))
	for name, result := range results {
		cli.PrintSuccess("%s: %d rows, %s -> %s", name, result.RowCount,
			humanize.Bytes(uint64(result.OldSize)), humanize.Bytes(uint64(result.NewSize)))
	}
}

func printBanner() {
	fmt.Println()
	fmt.Printf("  %shsqlcore-shell%s %sv%s%s\n", cli.Bold, cli.Reset, cli.Dim, version, cli.Reset)
	fmt.Printf("  %sstorage-substrate inspector — type \"help\" for commands%s\n\n", cli.Dim, cli.Reset)
}

func printHelp() {
	f := cli.NewHelpFormatter("hsqlcore-shell", version)
	f.AddCommand(cli.Command{Name: "create <table>", Description: "create a table (INTEGER key, VARCHAR value)"})
	f.AddCommand(cli.Command{Name: "drop <table>", Description: "drop a table and remove its data file"})
	f.AddCommand(cli.Command{Name: "insert <table> <key> <value>", Description: "add a row"})
	f.AddCommand(cli.Command{Name: "get <table> <position>", Description: "fetch one row by file position"})
	f.AddCommand(cli.Command{Name: "delete <table> <position>", Description: "delete one row by file position"})
	f.AddCommand(cli.Command{Name: "dump <table> [limit]", Description: "walk the primary index in key order"})
	f.AddCommand(cli.Command{Name: "stats", Description: "table and row counts across the open engine"})
	f.AddCommand(cli.Command{Name: "defrag [table]", Description: "compact one table, or every disk-resident table"})
	f.AddCommand(cli.Command{Name: "exit", Description: "quit the shell"})
	f.PrintUsage()
}
