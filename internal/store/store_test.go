package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskFields = []string{"id", "name", "done"}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "tasks.csv"), taskFields)
	require.NoError(t, err)
	return s
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestOpen_CreatesFileWithHeader(t *testing.T) {
	s := openTestStore(t)

	assert.Equal(t, "id,name,done\n", readFile(t, s.Path()))
	assert.Equal(t, 1, s.NextID())
}

func TestOpen_SeedsCounterFromMaxID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	content := "id,name,done\n3,a,false\n7,b,true\n5,c,false\nx,bad,false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := Open(path, taskFields)
	require.NoError(t, err)

	assert.Equal(t, 8, s.NextID())
	assert.Equal(t, 9, s.NextID())
	// Opening must not touch existing rows.
	assert.Equal(t, content, readFile(t, path))
}

func TestOpen_EmptyFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	s, err := Open(path, taskFields)
	require.NoError(t, err)

	assert.Equal(t, "id,name,done\n", readFile(t, path))
	assert.Equal(t, 1, s.NextID())
}

func TestOpen_IdempotentAcrossRestarts(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Insert(Record{"name": "one", "done": "false"})
	require.NoError(t, err)
	_, err = s.Insert(Record{"name": "two", "done": "false"})
	require.NoError(t, err)
	before := readFile(t, s.Path())

	reopened, err := Open(s.Path(), taskFields)
	require.NoError(t, err)

	assert.Equal(t, before, readFile(t, s.Path()))
	assert.Equal(t, 3, reopened.NextID())
}

func TestOpen_ReusesDeletedMaxIDAfterRestart(t *testing.T) {
	s := openTestStore(t)
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Insert(Record{"name": name, "done": "false"})
		require.NoError(t, err)
	}
	require.NoError(t, s.Delete(3))

	// Within the process the id is not handed out again.
	assert.Equal(t, 4, s.NextID())

	// The counter is reseeded from the file, so a restart reuses it.
	reopened, err := Open(s.Path(), taskFields)
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.NextID())
}

func TestInsert_AssignsIncreasingIDs(t *testing.T) {
	s := openTestStore(t)

	last := 0
	for i := 0; i < 5; i++ {
		id, err := s.Insert(Record{"name": "task", "done": "false"})
		require.NoError(t, err)
		assert.Greater(t, id, last)
		last = id
	}

	records, err := s.ScanAll()
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestAppend_DoesNotRewrite(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Append(Record{"id": "1", "name": "first"}))
	require.NoError(t, s.Append(Record{"id": "2", "name": "second, with comma", "done": "true"}))

	assert.Equal(t, "id,name,done\n1,first,\n2,\"second, with comma\",true\n", readFile(t, s.Path()))
}

func TestScanAll_FileOrderAndHeaderMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	// Columns in a different order than the store's fields, and a short row.
	content := "name,id,done\nb,2,true\na,1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := Open(path, taskFields)
	require.NoError(t, err)

	records, err := s.ScanAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{"id": "2", "name": "b", "done": "true"}, records[0])
	assert.Equal(t, Record{"id": "1", "name": "a", "done": ""}, records[1])
}

func TestOpen_ReorderedHeaderIsNormalised(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,id,done\nb,2,true\n"), 0644))

	s, err := Open(path, taskFields)
	require.NoError(t, err)
	assert.Equal(t, "id,name,done\n2,b,true\n", readFile(t, path))

	id, err := s.Insert(Record{"name": "c", "done": "false"})
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	rec, err := s.Find(id)
	require.NoError(t, err)
	assert.Equal(t, Record{"id": "3", "name": "c", "done": "false"}, rec)

	records, err := s.ScanAll()
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{"id": "2", "name": "b", "done": "true"},
		{"id": "3", "name": "c", "done": "false"},
	}, records)

	reopened, err := Open(path, taskFields)
	require.NoError(t, err)
	assert.Equal(t, 4, reopened.NextID())
}

func TestOpen_RenamedColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,username,password\n1,a,h1\n"), 0644))
	fields := []string{"id", "username", "password_hash"}

	s, err := Open(path, fields, WithRenamedColumn("password", "password_hash"))
	require.NoError(t, err)
	assert.Equal(t, "id,username,password_hash\n1,a,h1\n", readFile(t, path))

	id, err := s.Insert(Record{"username": "b", "password_hash": "h2"})
	require.NoError(t, err)

	rec, err := s.Find(id)
	require.NoError(t, err)
	assert.Equal(t, "h2", rec["password_hash"])
}

func TestOpen_DropsUnknownColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,done,extra\n1,a,false,x\n"), 0644))

	_, err := Open(path, taskFields)
	require.NoError(t, err)
	assert.Equal(t, "id,name,done\n1,a,false\n", readFile(t, path))
}

func TestRewriteAll_ReplacesContent(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Insert(Record{"name": "old", "done": "false"})
	require.NoError(t, err)

	require.NoError(t, s.RewriteAll([]Record{
		{"id": "9", "name": "new", "done": "true"},
	}))

	assert.Equal(t, "id,name,done\n9,new,true\n", readFile(t, s.Path()))
}

func TestUpdate(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Insert(Record{"name": "one", "done": "false"})
	require.NoError(t, err)
	_, err = s.Insert(Record{"name": "two", "done": "false"})
	require.NoError(t, err)

	t.Run("overwrites only non-empty fields of the match", func(t *testing.T) {
		require.NoError(t, s.Update(2, Record{"name": "", "done": "true"}))

		records, err := s.ScanAll()
		require.NoError(t, err)
		assert.Equal(t, Record{"id": "1", "name": "one", "done": "false"}, records[0])
		assert.Equal(t, Record{"id": "2", "name": "two", "done": "true"}, records[1])
	})

	t.Run("never overwrites the id", func(t *testing.T) {
		require.NoError(t, s.Update(1, Record{"id": "42", "name": "renamed"}))

		rec, err := s.Find(1)
		require.NoError(t, err)
		assert.Equal(t, "renamed", rec["name"])
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		before := readFile(t, s.Path())
		require.NoError(t, s.Update(99, Record{"name": "ghost"}))
		assert.Equal(t, before, readFile(t, s.Path()))
	})
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Insert(Record{"name": name, "done": "false"})
		require.NoError(t, err)
	}

	require.NoError(t, s.Delete(2))
	records, err := s.ScanAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0]["name"])
	assert.Equal(t, "c", records[1]["name"])

	before := readFile(t, s.Path())
	require.NoError(t, s.Delete(2))
	assert.Equal(t, before, readFile(t, s.Path()))
}

func TestFind(t *testing.T) {
	s := openTestStore(t)
	id, err := s.Insert(Record{"name": "a", "done": "true"})
	require.NoError(t, err)

	rec, err := s.Find(id)
	require.NoError(t, err)
	assert.Equal(t, "a", rec["name"])

	_, err = s.Find(id + 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseID(t *testing.T) {
	cases := map[string]bool{
		"1":   true,
		"042": true,
		"":    false,
		"-1":  false,
		"1.5": false,
		"id":  false,
	}
	for in, want := range cases {
		_, ok := parseID(in)
		assert.Equal(t, want, ok, "parseID(%q)", in)
	}
}
