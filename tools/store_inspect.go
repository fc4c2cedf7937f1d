// Command store_inspect dumps the content of a chat-direct badger
// store for debugging: conversation entries under conv: and account
// records under user:. The store is opened read-only so it can be
// inspected next to a running server that crashed or was stopped.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"chat-direct/domain"
	"chat-direct/repositories"
)

func main() {
	dbPath := flag.String("db", "/tmp/chat-direct/badger", "Path to badger DB")
	prefix := flag.String("prefix", "conv:", "Prefix to scan (conv: or user:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	title := color.New(color.BgBlack, color.FgGreen).Render(fmt.Sprintf(" %s @ %s ", *prefix, *dbPath))
	fmt.Println(title)

	switch {
	case strings.HasPrefix(*prefix, "user:"):
		err = dumpUsers(db, *prefix)
	default:
		err = dumpMessages(db, *prefix)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
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
	return table
}

func dumpMessages(db *badger.DB, prefix string) error {
	table := newTable([]string{"Key", "Time", "Sender", "Receiver", "Lang", "Content"})

	err := scan(db, prefix, func(key string, value []byte) {
		var m domain.Message
		if err := json.Unmarshal(value, &m); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			return
		}

		table.Append([]string{
			key,
			m.CreatedAt.Format("15:04:05"),
			shortID(m.SenderID),
			shortID(m.ReceiverID),
			m.Language,
			m.Content,
		})
	})
	if err != nil {
		return err
	}

	table.Render()

	total, err := repositories.NewMessageRepository(db, slog.Default(), nil).CountConversations()
	if err != nil {
		return err
	}
	fmt.Printf("\n%d distinct conversation(s)\n", total)
	return nil
}

func dumpUsers(db *badger.DB, prefix string) error {
	table := newTable([]string{"ID", "Username", "Email", "Online", "Roles", "Created"})

	err := scan(db, prefix, func(key string, value []byte) {
		var u domain.User
		if err := json.Unmarshal(value, &u); err != nil {
			fmt.Printf("Error unmarshaling key %s: %v\n", key, err)
			return
		}

		table.Append([]string{
			shortID(u.ID),
			u.Username,
			u.Email,
			fmt.Sprintf("%t", u.IsOnline),
			strings.Join(u.Roles, ","),
			u.CreatedAt.Format("2006-01-02 15:04"),
		})
	})
	if err != nil {
		return err
	}

	table.Render()
	return nil
}

func scan(db *badger.DB, prefix string, visit func(key string, value []byte)) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			// Secondary indexes hold bare IDs, not JSON documents
			key := string(item.Key())
			if strings.HasPrefix(key, "email:") || strings.HasPrefix(key, "uname:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				visit(key, v)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// shortID keeps the first 8 characters of a UUID for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
