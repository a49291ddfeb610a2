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

import "fmt"

// Pagination defaults applied when the caller passes zero values.
const (
	DefaultPage    = 1
	DefaultPerPage = 25
)

// PageRequest describes the requested pagination window. The zero value
// resolves to the first page with the default page size.
type PageRequest struct {
	Page    int
	PerPage int
}

// Normalize applies defaults for zero values and rejects negative or
// otherwise out-of-range windows.
func (p PageRequest) Normalize() (PageRequest, error) {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PerPage == 0 {
		p.PerPage = DefaultPerPage
	}
	if p.Page < 1 {
		return p, fmt.Errorf("page must be >= 1, got %d", p.Page)
	}
	if p.PerPage < 1 {
		return p, fmt.Errorf("page size must be >= 1, got %d", p.PerPage)
	}
	return p, nil
}

// Offset returns the row offset of the window.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is one window of a paginated result set along with the metadata
// needed to walk the full set.
type Page[T any] struct {
	DataSet    []*T `json:"data_set"`
	Current    int  `json:"current"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	TotalData  int  `json:"total_data"`
	Previous   *int `json:"previous"`
	Next       *int `json:"next"`
}

// NewPage derives pagination metadata from the fetched window and the
// total row count. Previous/Next are nil at the respective edges.
func NewPage[T any](dataSet []*T, request PageRequest, total int) *Page[T] {
	if dataSet == nil {
		dataSet = make([]*T, 0)
	}
	page := &Page[T]{
		DataSet:    dataSet,
		Current:    request.Page,
		PerPage:    request.PerPage,
		TotalData:  total,
		TotalPages: (total + request.PerPage - 1) / request.PerPage,
	}
	if request.Page > 1 {
		previous := request.Page - 1
		page.Previous = &previous
	}
	if request.Offset()+len(dataSet) < total {
		next := request.Page + 1
		page.Next = &next
	}
	return page
}

// HasPrevious reports whether an earlier page exists.
func (p *Page[T]) HasPrevious() bool { return p.Previous != nil }

// HasNext reports whether a later page exists.
func (p *Page[T]) HasNext() bool { return p.Next != nil }
