package swaptest

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/swapvault/store/iavl"
)

// CommitStore returns a store instance that is using a filesystem backend
// engine to store the data.
// Use it instead of store.MemStore when a test needs the storage the CLI
// uses.
func CommitStore(t testing.TB) (db *iavl.CommitStore, cleanup func()) {
	t.Helper()
	dbpath, err := ioutil.TempDir("", "swaptest")
	if err != nil {
		t.Fatalf("cannot create a temporary directory: %s", err)
	}

	db, err = iavl.NewCommitStore(dbpath, "ledger")
	if err != nil {
		os.RemoveAll(dbpath)
		t.Fatalf("cannot open ledger: %s", err)
	}
	return db, func() {
		db.Close()
		os.RemoveAll(dbpath)
	}
}
