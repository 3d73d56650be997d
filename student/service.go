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

	"github.com/tomoncle/recordstore/repository"
	"github.com/tomoncle/recordstore/types"
)

// Service is the student-facing view of a Repository[Student]. Every call
// runs in the session the service was created with; nothing is visible to
// other sessions until Commit.
type Service struct {
	repo repository.Repository[Student]
}

func NewService(session *repository.Session) *Service {
	return &Service{repo: repository.NewRepository[Student](session)}
}

// Enroll inserts one student and fills in its generated ID.
func (s *Service) Enroll(ctx context.Context, student *Student) error {
	return s.repo.Insert(ctx, student)
}

// EnrollAll inserts students in a single statement. Their IDs stay zero.
func (s *Service) EnrollAll(ctx context.Context, students ...*Student) error {
	return s.repo.InsertMany(ctx, students...)
}

// All returns every student in storage order.
func (s *Service) All(ctx context.Context) ([]*Student, error) {
	return s.repo.GetAll(ctx)
}

// AllStatement returns the SQL All runs.
func (s *Service) AllStatement() string {
	return s.repo.Statement(types.NewSelection())
}

func (s *Service) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := s.repo.Project(ctx, types.NewSelection("name"), &names)
	return names, err
}

func (s *Service) NamesByName(ctx context.Context) ([]string, error) {
	var names []string
	err := s.repo.Project(ctx, types.NewSelection("name").OrderBy("name ASC"), &names)
	return names, err
}

func (s *Service) ByGradeDesc(ctx context.Context) ([]NameGrade, error) {
	var rows []NameGrade
	err := s.repo.Project(ctx, types.NewSelection("name", "grade").OrderBy("grade DESC"), &rows)
	return rows, err
}

// Oldest returns the student with the earliest birthday as a one-row list.
func (s *Service) Oldest(ctx context.Context) ([]NameBirthday, error) {
	var rows []NameBirthday
	sel := types.NewSelection("name", "birthday").OrderBy("birthday ASC").Take(1)
	err := s.repo.Project(ctx, sel, &rows)
	return rows, err
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, nil)
}

// Search returns students whose name matches the LIKE pattern and who are in grade.
func (s *Service) Search(ctx context.Context, pattern string, grade int) ([]*Student, error) {
	filter := types.And(
		types.NewQueryFilter("name LIKE ?", pattern),
		types.NewQueryFilter("grade = ?", grade),
	)
	return s.repo.List(ctx, filter)
}

// PromoteAll raises every student's grade by one in a single UPDATE.
func (s *Service) PromoteAll(ctx context.Context) (int64, error) {
	return s.repo.Update(ctx, nil, "grade = grade + ?", 1)
}

// FirstByName returns the first student called name, or
// repository.ErrNotFound.
func (s *Service) FirstByName(ctx context.Context, name string) (*Student, error) {
	return s.repo.First(ctx, byName(name))
}

// Remove deletes a loaded student by primary key.
func (s *Service) Remove(ctx context.Context, student *Student) error {
	return s.repo.Delete(ctx, student)
}

// RemoveByName deletes every student called name without loading them and
// returns how many rows went away.
func (s *Service) RemoveByName(ctx context.Context, name string) (int64, error) {
	return s.repo.DeleteWhere(ctx, byName(name))
}

// Roster returns one page of students ordered by name.
func (s *Service) Roster(ctx context.Context, page, size int) (*types.Pagination[Student], error) {
	return s.repo.Page(ctx, types.NewPageRequest(page, size, nil, "name ASC"))
}

func (s *Service) Commit() error {
	return s.repo.Session().Commit()
}

func byName(name string) *types.QueryFilter {
	return types.NewQueryFilter("name = ?", name)
}
