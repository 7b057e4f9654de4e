package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSourceReadsRows(t *testing.T) {
	path := writeTempCSV(t, "parties.csv",
		"Cust No, Name ,City\n"+
			"C1,Acme Gases,Pune\n"+
			"C2,Beta Hospital,Mumbai\n")

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	tables, err := src.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"parties"}, tables)

	columns, err := src.Columns(context.Background(), "parties")
	require.NoError(t, err)
	require.Len(t, columns, 3)
	assert.Equal(t, "Cust No", columns[0].Name)
	assert.Equal(t, "Name", columns[1].Name, "header cells are trimmed")

	estimate, err := src.EstimateRows(context.Background(), "parties")
	require.NoError(t, err)
	assert.Negative(t, estimate, "CSV sources do not count rows up front")

	var got []Row
	err = src.Read(context.Background(), "PARTIES", ReadOptions{}, func(cols []string, rows []Row) error {
		assert.Equal(t, []string{"Cust No", "Name", "City"}, cols)
		got = append(got, rows...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Row{"C1", "Acme Gases", "Pune"}, got[0])
}

func TestCSVSourceChunksRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("no,name\n")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&sb, "C%d,Customer %d\n", i, i)
	}
	path := writeTempCSV(t, "bulk.csv", sb.String())

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	var chunks []int
	err = src.Read(context.Background(), "bulk", ReadOptions{ChunkSize: 10}, func(_ []string, rows []Row) error {
		chunks = append(chunks, len(rows))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 5}, chunks)
}

func TestCSVSourcePadsShortRecords(t *testing.T) {
	path := writeTempCSV(t, "ragged.csv",
		"no,name,city\n"+
			"C1,Acme\n")

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	err = src.Read(context.Background(), "ragged", ReadOptions{}, func(_ []string, rows []Row) error {
		require.Len(t, rows, 1)
		require.Len(t, rows[0], 3)
		assert.Nil(t, rows[0][2])
		return nil
	})
	require.NoError(t, err)
}

func TestCSVSourceUnknownTable(t *testing.T) {
	path := writeTempCSV(t, "data.csv", "a,b\n1,2\n")

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Columns(context.Background(), "other")
	assert.ErrorIs(t, err, ErrNoSuchTable)

	err = src.Read(context.Background(), "other", ReadOptions{}, nil)
	assert.ErrorIs(t, err, ErrNoSuchTable)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenUnrecognizedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}
