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

package database

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

// IsSqlError classifies a driver error. MySQL errors carry numeric codes,
// Postgres and SQLite are matched on SQLSTATE or message text.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1054:
			return true, NoColumnErr
		case 1062:
			return true, DuplicateKeyErr
		case 1048:
			return true, NotNullViolationErr
		case 1216, 1217, 1451, 1452:
			return true, ForeignKeyViolationErr
		case 3819:
			return true, CheckConstraintViolationErr
		case 1265:
			return true, DataTruncatedErr
		case 1146:
			return true, NoTableErr
		case 1050:
			return true, ExistTableErr
		default:
			return true, UnknownErr
		}
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "sqlstate 42703"),
		strings.Contains(s, "undefined column"),
		strings.Contains(s, "no such column"):
		return true, NoColumnErr
	case strings.Contains(s, "sqlstate 42p01"),
		strings.Contains(s, "undefined table"),
		strings.Contains(s, "no such table"):
		return true, NoTableErr
	case strings.Contains(s, "relation") && strings.Contains(s, "already exists"),
		strings.Contains(s, "table") && strings.Contains(s, "already exists"):
		return true, ExistTableErr
	case strings.Contains(s, "duplicate key value"),
		strings.Contains(s, "unique constraint failed"),
		strings.Contains(s, "sqlstate 23505"):
		return true, DuplicateKeyErr
	case strings.Contains(s, "not-null constraint"),
		strings.Contains(s, "not null constraint failed"),
		strings.Contains(s, "sqlstate 23502"):
		return true, NotNullViolationErr
	case strings.Contains(s, "foreign key violation"),
		strings.Contains(s, "foreign key constraint failed"),
		strings.Contains(s, "sqlstate 23503"):
		return true, ForeignKeyViolationErr
	case strings.Contains(s, "check constraint"),
		strings.Contains(s, "sqlstate 23514"):
		return true, CheckConstraintViolationErr
	case strings.Contains(s, "string data right truncation"),
		strings.Contains(s, "sqlstate 22001"),
		strings.Contains(s, "data truncated"):
		return true, DataTruncatedErr
	case strings.Contains(s, "datatype mismatch"),
		strings.Contains(s, "sqlstate 42804"):
		return true, InvalidTypeCastErr
	}
	return false, UnknownErr
}

// DuplicateKeyError reports a unique constraint violation during a write,
// with the offending entry/key extracted from the driver error when the
// driver exposes them.
type DuplicateKeyError struct {
	Model string
	Entry string
	Key   string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	msg := fmt.Sprintf("duplicate entry for %s", e.Model)
	if e.Entry != "" {
		msg += fmt.Sprintf(": %s", e.Entry)
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" (key %s)", e.Key)
	}
	return msg
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// IsDuplicateKey reports whether err represents a unique constraint
// violation on any supported dialect.
func IsDuplicateKey(err error) bool {
	var dup *DuplicateKeyError
	if errors.As(err, &dup) {
		return true
	}
	is, kind := IsSqlError(err)
	return is && kind == DuplicateKeyErr
}

// mysql: Error 1062: Duplicate entry 'x-y' for key 'tbl.uniq_name'
var mysqlDuplicateEntry = regexp.MustCompile(`Duplicate entry '(.*)' for key '(.*)'`)

// WrapWriteError converts duplicate key driver errors into a typed
// DuplicateKeyError attributed to the model; other errors pass through
// unchanged.
func WrapWriteError(model string, err error) error {
	if err == nil {
		return nil
	}
	if is, kind := IsSqlError(err); !is || kind != DuplicateKeyErr {
		return err
	}
	dup := &DuplicateKeyError{Model: model, Err: err}
	if m := mysqlDuplicateEntry.FindStringSubmatch(err.Error()); m != nil {
		dup.Entry = m[1]
		dup.Key = m[2]
	}
	return dup
}
