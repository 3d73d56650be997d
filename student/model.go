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

package student

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// enrolledDefault is evaluated once, when the package is initialised, and
// shared by every insert that leaves EnrolledDate unset. Rows inserted hours
// apart therefore carry the same enrolment time.
var enrolledDefault = time.Now()

// EnrolledDefault returns the enrolment time applied to inserts that do not
// set one.
func EnrolledDefault() time.Time {
	return enrolledDefault
}

// Student is a row of the students table.
type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Name         string    `bun:"name" json:"name"`
	Email        string    `bun:"email,type:varchar(55)" json:"email"`
	Grade        int       `bun:"grade" json:"grade"`
	Birthday     time.Time `bun:"birthday" json:"birthday"`
	EnrolledDate time.Time `bun:"enrolled_date" json:"enrolled_date"`
}

var _ bun.BeforeAppendModelHook = (*Student)(nil)

func (s *Student) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		if s.EnrolledDate.IsZero() {
			s.EnrolledDate = enrolledDefault
		}
	}
	return nil
}

func (s *Student) String() string {
	return fmt.Sprintf("Student %d: %s, Grade %d", s.ID, s.Name, s.Grade)
}

// NameGrade is the (name, grade) projection of a Student.
type NameGrade struct {
	Name  string `bun:"name" json:"name"`
	Grade int    `bun:"grade" json:"grade"`
}

func (r NameGrade) String() string {
	return fmt.Sprintf("(%q, %d)", r.Name, r.Grade)
}

// NameBirthday is the (name, birthday) projection of a Student.
type NameBirthday struct {
	Name     string    `bun:"name" json:"name"`
	Birthday time.Time `bun:"birthday" json:"birthday"`
}

func (r NameBirthday) String() string {
	return fmt.Sprintf("(%q, %s)", r.Name, r.Birthday.UTC().Format(time.DateTime))
}

// FormatRows renders rows the way the console prints result lists:
// [row, row, ...]. Strings are quoted.
func FormatRows[T any](rows []T) string {
	parts := make([]string, len(rows))
	for i, row := range rows {
		switch v := any(row).(type) {
		case string:
			parts[i] = fmt.Sprintf("%q", v)
		case fmt.Stringer:
			parts[i] = v.String()
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
