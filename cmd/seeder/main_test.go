package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/membercast/internal/db"
	"github.com/unclebandit/membercast/internal/repository"
)

const membersCSV = `FirstName;LastName;SocialNumber;Address;PostalCode;City;Mobile
Anna;Berg;19800101-1234;Storgatan 1;11122;Stockholm;070-123 45 67
Omar;Haddad;;;;Malmö;+46 70 765 43 21
`

func runSeeder(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newSeedCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeeder(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "members.db")
	csvPath := filepath.Join(dir, "members.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(membersCSV), 0o600))

	out, err := runSeeder(t, csvPath, "--db", dbPath, "--config", filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully imported 2 members")
	assert.Contains(t, out, "Database seeding completed successfully!")

	// second run finds both rows already stored
	out, err = runSeeder(t, csvPath, "--db", dbPath, "--config", filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "2 duplicates")

	conn, err := db.Open(context.Background(), db.DriverSQLite, dbPath, nil)
	require.NoError(t, err)
	defer conn.Close()
	members, err := (&repository.MemberRepository{DB: conn}).ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestSeeder_Errors(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "members.db")

	_, err := runSeeder(t, filepath.Join(dir, "members.csv"), "--db", dbPath, "--duplicates", "replace")
	assert.Error(t, err)

	_, err = runSeeder(t, filepath.Join(dir, "nope.csv"), "--db", dbPath)
	assert.ErrorContains(t, err, "failed to read")

	bad := filepath.Join(dir, "members.txt")
	require.NoError(t, os.WriteFile(bad, []byte(membersCSV), 0o600))
	out, err := runSeeder(t, bad, "--db", dbPath)
	assert.ErrorContains(t, err, "no members found")
	assert.Contains(t, out, "Invalid file type")

	_, err = runSeeder(t, "--db", dbPath)
	assert.Error(t, err, "at least one file is required")
}
