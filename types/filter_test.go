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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnd(t *testing.T) {
	t.Run("two filters", func(t *testing.T) {
		f := And(NewQueryFilter("name LIKE ?", "%Alan%"), NewQueryFilter("grade = ?", 11))
		require.NotNil(t, f)
		assert.Equal(t, "(name LIKE ?) AND (grade = ?)", f.Schema)
		assert.Equal(t, []interface{}{"%Alan%", 11}, f.Args)
	})

	t.Run("single filter is unwrapped", func(t *testing.T) {
		f := And(nil, NewQueryFilter("name = ?", "Albert Einstein"), NewQueryFilter("  "))
		require.NotNil(t, f)
		assert.Equal(t, "name = ?", f.Schema)
		assert.Equal(t, []interface{}{"Albert Einstein"}, f.Args)
	})

	t.Run("nothing means all rows", func(t *testing.T) {
		assert.Nil(t, And())
		assert.Nil(t, And(nil, nil))
		assert.True(t, And().IsEmpty())
	})
}

func TestSelection(t *testing.T) {
	sel := NewSelection("name", "birthday").
		OrderBy("birthday ASC").
		Take(1).
		Where(NewQueryFilter("grade > ?", 5))

	assert.Equal(t, []string{"name", "birthday"}, sel.Columns)
	assert.Equal(t, []string{"birthday ASC"}, sel.Orders)
	assert.Equal(t, 1, sel.Limit)
	assert.Equal(t, "grade > ?", sel.Filter.Schema)
}

func TestPageRequest(t *testing.T) {
	req := NewPageRequest(0, 0, nil)
	assert.Equal(t, 1, req.Page())
	assert.Equal(t, 10, req.PageSize())
	assert.Equal(t, 0, req.Offset())

	req = NewPageRequest(3, 2, NewQueryFilter("grade = ?", 6), "id ASC")
	assert.Equal(t, 4, req.Offset())
	assert.Equal(t, []string{"id ASC"}, req.Orders())
	assert.Equal(t, "grade = ?", req.Filter().Schema)

	p := NewPagination[struct{}](req)
	assert.Equal(t, 0, p.Pages())
	p.Total = 5
	assert.Equal(t, 3, p.Pages())
}
