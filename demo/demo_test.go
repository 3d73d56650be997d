/*
 * Copyright 2025 tomoncle.
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

package demo

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/recordstore/database"
	"github.com/tomoncle/recordstore/student"
)

func testConfig(t *testing.T) *database.Config {
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.DBName = strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return cfg
}

func run(t *testing.T) (*Report, string) {
	t.Helper()
	var buf bytes.Buffer
	report, err := Run(context.Background(), testConfig(t), &buf)
	require.NoError(t, err)
	return report, buf.String()
}

func TestTranscript(t *testing.T) {
	_, out := run(t)

	g := goldie.New(t)
	g.Assert(t, "transcript", []byte(out))
}

func TestBulkInsertDoesNotReturnIDs(t *testing.T) {
	report, _ := run(t)

	assert.Equal(t, []int64{0, 0}, report.InsertedIDs)
	require.Len(t, report.Students, 2)
	assert.NotZero(t, report.Students[0].ID)
	assert.NotZero(t, report.Students[1].ID)
	assert.NotEqual(t, report.Students[0].ID, report.Students[1].ID)
	assert.Equal(t, 2, report.Count)
}

func TestReads(t *testing.T) {
	report, _ := run(t)

	assert.ElementsMatch(t, []string{"Albert Einstein", "Alan Turing"}, report.Names)
	assert.Equal(t, []string{"Alan Turing", "Albert Einstein"}, report.NamesByName)
	assert.Equal(t, []student.NameGrade{{Name: "Alan Turing", Grade: 11}, {Name: "Albert Einstein", Grade: 6}}, report.ByGradeDesc)

	require.Len(t, report.Oldest, 1)
	assert.Equal(t, "Albert Einstein", report.Oldest[0].Name)
	assert.True(t, report.Oldest[0].Birthday.Equal(time.Date(1879, time.March, 14, 0, 0, 0, 0, time.UTC)))

	require.Len(t, report.Search, 1)
	assert.Equal(t, "Alan Turing", report.Search[0].Name)
	assert.Equal(t, 11, report.Search[0].Grade)

	assert.Contains(t, report.ListingSQL, `FROM "students" AS "s"`)
}

// An unordered projection comes back in whatever order the store reads it:
// through index_name when it exists, otherwise in insertion order.
func TestNamesFollowStorageOrder(t *testing.T) {
	report, _ := run(t)
	assert.Equal(t, []string{"Alan Turing", "Albert Einstein"}, report.Names)

	cfg := testConfig(t)
	cfg.DataMigrateConfig.EnableIndexes = false
	report, err := Run(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Albert Einstein", "Alan Turing"}, report.Names)
}

func TestUpdateAndDeletes(t *testing.T) {
	report, _ := run(t)

	assert.EqualValues(t, 2, report.Promoted)
	assert.ElementsMatch(t, []student.NameGrade{{Name: "Albert Einstein", Grade: 7}, {Name: "Alan Turing", Grade: 12}}, report.AfterPromote)

	require.NotNil(t, report.Removed)
	assert.Equal(t, "Albert Einstein", report.Removed.Name)
	assert.Nil(t, report.AfterRemove)
	assert.Equal(t, 1, report.CountAfterRemove)

	assert.Zero(t, report.RemovedByName)
	assert.Nil(t, report.AfterRemoveByName)
}

func TestEnrolledDateSharedByAllRows(t *testing.T) {
	report, _ := run(t)

	require.Len(t, report.Students, 2)
	assert.True(t, report.Students[0].EnrolledDate.Equal(report.Students[1].EnrolledDate))
	assert.WithinDuration(t, student.EnrolledDefault(), report.Students[0].EnrolledDate, time.Millisecond)
}

func TestRunsAreIsolated(t *testing.T) {
	first, _ := run(t)
	second, _ := run(t)

	// the first run's store is gone once Run returns, so ids start over
	assert.Equal(t, first.Students[0].ID, second.Students[0].ID)
	assert.Equal(t, 2, second.Count)
}

func TestEchoQueries(t *testing.T) {
	cfg := testConfig(t)
	cfg.ConnectionConfig.EchoQueries = true

	var buf bytes.Buffer
	_, err := Run(context.Background(), cfg, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[BUN]")
	assert.Contains(t, out, `UPDATE "students"`)
	assert.Contains(t, out, "New Student ID is 0.")
	assert.NotContains(t, out, "bun_migrations")
}

func TestRunFailsOnInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.ConnectionConfig.DBName = ""

	var buf bytes.Buffer
	_, err := Run(context.Background(), cfg, &buf)
	assert.ErrorContains(t, err, "create schema")
	assert.Empty(t, buf.String())
}
