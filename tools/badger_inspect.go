package main

import (
	"flag"
	"fmt"
	"log"
	"nextext/repositories"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

const maxContentWidth = 60

// Dumps messages or accounts of a chat badger store as a table.
//
//	go run ./tools -db ./data/badger -prefix msg:
//	go run ./tools -db ./data/badger -prefix user:
func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: or user:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	var row func(value []byte) ([]string, error)
	switch {
	case strings.HasPrefix(*prefix, "msg:"):
		table.SetHeader([]string{"ID", "Timestamp", "Sender", "Recipient", "Content"})
		row = messageRow
	case strings.HasPrefix(*prefix, "user:"):
		table.SetHeader([]string{"ID", "Username", "Email", "Active", "Created At"})
		row = userRow
	default:
		log.Fatalf("Unsupported prefix %q, expected msg: or user:", *prefix)
	}

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				cells, err := row(v)
				if err != nil {
					// Keep scanning, a single bad value should not hide the rest
					fmt.Printf("Error decoding key %s: %v\n", string(item.Key()), err)
					return nil
				}
				table.Append(cells)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func messageRow(value []byte) ([]string, error) {
	msg, err := repositories.DecodeMessage(value)
	if err != nil {
		return nil, err
	}
	return []string{
		strconv.FormatInt(msg.ID, 10),
		msg.Timestamp.Format("2006-01-02 15:04:05.000"),
		msg.SenderID.String(),
		msg.RecipientID.String(),
		truncate(msg.Content),
	}, nil
}

func userRow(value []byte) ([]string, error) {
	user, err := repositories.DecodeUser(value)
	if err != nil {
		return nil, err
	}
	return []string{
		user.ID.String(),
		user.Username,
		user.Email,
		strconv.FormatBool(user.IsActive),
		user.CreatedAt.Format("2006-01-02 15:04:05"),
	}, nil
}

func truncate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= maxContentWidth {
		return s
	}
	return string([]rune(s)[:maxContentWidth-1]) + "…"
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
