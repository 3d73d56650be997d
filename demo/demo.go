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
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomoncle/recordstore/database"
	"github.com/tomoncle/recordstore/repository"
	"github.com/tomoncle/recordstore/student"
	"github.com/tomoncle/recordstore/utils"
)

var log = utils.NewLogger("DEMO")

// Report holds what each step observed. It mirrors the console transcript.
type Report struct {
	// IDs of the in-memory students right after the bulk insert.
	InsertedIDs       []int64
	ListingSQL        string
	Students          []*student.Student
	Names             []string
	NamesByName       []string
	ByGradeDesc       []student.NameGrade
	Oldest            []student.NameBirthday
	Count             int
	Search            []*student.Student
	Promoted          int64
	AfterPromote      []student.NameGrade
	Removed           *student.Student
	AfterRemove       *student.Student
	CountAfterRemove  int
	RemovedByName     int64
	AfterRemoveByName *student.Student
}

// Roster returns the two students the demo enrolls.
func Roster() []*student.Student {
	return []*student.Student{
		{
			Name:     "Albert Einstein",
			Email:    "albert.einstein@zurich.edu",
			Grade:    6,
			Birthday: time.Date(1879, time.March, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			Name:     "Alan Turing",
			Email:    "alan.turing@sherborne.edu",
			Grade:    11,
			Birthday: time.Date(1912, time.June, 23, 0, 0, 0, 0, time.UTC),
		},
	}
}

type runner struct {
	w      io.Writer
	svc    *student.Service
	report *Report
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// Run opens a fresh store described by cfg (DefaultConfig when nil), runs the
// twelve demo steps against it and writes their results to w. The store is
// discarded before Run returns. The first failing step aborts the run.
func Run(ctx context.Context, cfg *database.Config, w io.Writer) (*Report, error) {
	if cfg == nil {
		cfg = database.DefaultConfig()
	}

	log.WithField("step", 1).Debug("create schema")
	manager, err := database.Open(ctx, cfg, student.NewSchema(), database.WithEchoWriter(w))
	if err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	defer func() { _ = manager.Disconnect() }()

	session := repository.NewSession(manager.GetDB())
	defer func() { _ = session.Close() }()

	r := &runner{w: w, svc: student.NewService(session), report: &Report{}}
	steps := []step{
		{"bulk insert", r.bulkInsert},
		{"list students", r.listStudents},
		{"project names", r.projectNames},
		{"order by name", r.orderByName},
		{"order by grade desc", r.orderByGradeDesc},
		{"oldest student", r.oldestStudent},
		{"count students", r.countStudents},
		{"filter students", r.filterStudents},
		{"promote students", r.promoteStudents},
		{"delete student", r.deleteStudent},
		{"delete by name", r.deleteByName},
	}
	for i, s := range steps {
		log.WithField("step", i+2).Debug(s.name)
		if err := s.run(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return r.report, nil
}

func (r *runner) println(a ...interface{}) {
	_, _ = fmt.Fprintln(r.w, a...)
}

func (r *runner) bulkInsert(ctx context.Context) error {
	roster := Roster()
	if err := r.svc.EnrollAll(ctx, roster...); err != nil {
		return err
	}
	if err := r.svc.Commit(); err != nil {
		return err
	}
	for _, s := range roster {
		r.report.InsertedIDs = append(r.report.InsertedIDs, s.ID)
		_, _ = fmt.Fprintf(r.w, "New Student ID is %d.\n", s.ID)
	}
	return nil
}

func (r *runner) listStudents(ctx context.Context) error {
	r.report.ListingSQL = r.svc.AllStatement()
	r.println(r.report.ListingSQL)

	students, err := r.svc.All(ctx)
	if err != nil {
		return err
	}
	r.report.Students = students
	for _, s := range students {
		r.println(s)
	}
	return nil
}

func (r *runner) projectNames(ctx context.Context) error {
	names, err := r.svc.Names(ctx)
	if err != nil {
		return err
	}
	r.report.Names = names
	r.println(student.FormatRows(names))
	return nil
}

func (r *runner) orderByName(ctx context.Context) error {
	names, err := r.svc.NamesByName(ctx)
	if err != nil {
		return err
	}
	r.report.NamesByName = names
	r.println(student.FormatRows(names))
	return nil
}

func (r *runner) orderByGradeDesc(ctx context.Context) error {
	rows, err := r.svc.ByGradeDesc(ctx)
	if err != nil {
		return err
	}
	r.report.ByGradeDesc = rows
	r.println(student.FormatRows(rows))
	return nil
}

func (r *runner) oldestStudent(ctx context.Context) error {
	rows, err := r.svc.Oldest(ctx)
	if err != nil {
		return err
	}
	r.report.Oldest = rows
	r.println(student.FormatRows(rows))
	return nil
}

func (r *runner) countStudents(ctx context.Context) error {
	n, err := r.svc.Count(ctx)
	if err != nil {
		return err
	}
	r.report.Count = n
	r.println(n)
	return nil
}

func (r *runner) filterStudents(ctx context.Context) error {
	found, err := r.svc.Search(ctx, "%Alan%", 11)
	if err != nil {
		return err
	}
	r.report.Search = found
	for _, s := range found {
		r.println(s.Name)
	}
	return nil
}

func (r *runner) promoteStudents(ctx context.Context) error {
	affected, err := r.svc.PromoteAll(ctx)
	if err != nil {
		return err
	}
	if err := r.svc.Commit(); err != nil {
		return err
	}
	r.report.Promoted = affected

	students, err := r.svc.All(ctx)
	if err != nil {
		return err
	}
	rows := make([]student.NameGrade, 0, len(students))
	for _, s := range students {
		rows = append(rows, student.NameGrade{Name: s.Name, Grade: s.Grade})
	}
	r.report.AfterPromote = rows
	r.println(student.FormatRows(rows))
	return nil
}

const removedName = "Albert Einstein"

func (r *runner) deleteStudent(ctx context.Context) error {
	found, err := r.svc.FirstByName(ctx, removedName)
	if err != nil {
		return err
	}
	if err := r.svc.Remove(ctx, found); err != nil {
		return err
	}
	if err := r.svc.Commit(); err != nil {
		return err
	}
	r.report.Removed = found

	again, err := r.lookup(ctx, removedName)
	if err != nil {
		return err
	}
	r.report.AfterRemove = again
	r.printStudent(again)

	r.report.CountAfterRemove, err = r.svc.Count(ctx)
	return err
}

func (r *runner) deleteByName(ctx context.Context) error {
	affected, err := r.svc.RemoveByName(ctx, removedName)
	if err != nil {
		return err
	}
	if err := r.svc.Commit(); err != nil {
		return err
	}
	r.report.RemovedByName = affected

	again, err := r.lookup(ctx, removedName)
	if err != nil {
		return err
	}
	r.report.AfterRemoveByName = again
	r.printStudent(again)
	return nil
}

// lookup is FirstByName with "not found" reported as a nil student.
func (r *runner) lookup(ctx context.Context, name string) (*student.Student, error) {
	s, err := r.svc.FirstByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return s, err
}

func (r *runner) printStudent(s *student.Student) {
	if s == nil {
		r.println("None")
		return
	}
	r.println(s)
}
