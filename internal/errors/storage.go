/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
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

package errors

import "fmt"

// Storage substrate errors (5100-5199): the random-access file
// backend, shadow log, cache, free-space manager, row store, and AVL
// index all report through these codes.
const (
	ErrCodeIoFailure      ErrorCode = 5100
	ErrCodeEndOfFile      ErrorCode = 5101
	ErrCodeReadOnly       ErrorCode = 5102
	ErrCodeCorruptRow     ErrorCode = 5103
	ErrCodeCorruptIndex   ErrorCode = 5104
	ErrCodeCorruptHeader  ErrorCode = 5105
	ErrCodeStoreDuplicate ErrorCode = 5106
	ErrCodeOutOfMemory    ErrorCode = 5107
	ErrCodeInterrupted    ErrorCode = 5108
	ErrCodeTextEncoding   ErrorCode = 5109
	ErrCodeTableExists    ErrorCode = 5110
	ErrCodeTableNotOpen   ErrorCode = 5111
)

func init() {
	sqlstateMap[ErrCodeIoFailure] = SQLStateInternalError
	sqlstateMap[ErrCodeEndOfFile] = SQLStateNoData
	sqlstateMap[ErrCodeReadOnly] = SQLStateTransactionState
	sqlstateMap[ErrCodeCorruptRow] = SQLStateDataCorrupted
	sqlstateMap[ErrCodeCorruptIndex] = SQLStateIndexCorrupted
	sqlstateMap[ErrCodeCorruptHeader] = SQLStateDataCorrupted
	sqlstateMap[ErrCodeStoreDuplicate] = SQLStateUniqueViolation
	sqlstateMap[ErrCodeOutOfMemory] = SQLStateMemoryAlloc
	sqlstateMap[ErrCodeInterrupted] = SQLStateCLIError
	sqlstateMap[ErrCodeTextEncoding] = SQLStateInvalidCharValue
	sqlstateMap[ErrCodeTableExists] = SQLStateTableAlreadyExists
	sqlstateMap[ErrCodeTableNotOpen] = SQLStateTableNotFound
}

// IoFailure reports a read/write/sync/mmap failure against the
// random-access file backend.
func IoFailure(op string, cause error) *FlyDBError {
	return &FlyDBError{
		Code:     ErrCodeIoFailure,
		Category: CategoryStorage,
		Message:  fmt.Sprintf("I/O failure during %s", op),
		Cause:    cause,
	}
}

// EndOfFile reports a read positioned past the end of the backend.
func EndOfFile(pos int64) *FlyDBError {
	return &FlyDBError{
		Code:     ErrCodeEndOfFile,
		Category: CategoryStorage,
		Message:  "read past end of file",
		Detail:   fmt.Sprintf("position %d", pos),
	}
}

// ReadOnly reports a write attempted against a read-only backend.
func ReadOnly() *FlyDBError {
	return &FlyDBError{
		Code:     ErrCodeReadOnly,
		Category: CategoryStorage,
		Message:  "backend is read-only",
	}
}

// CorruptRow reports a row image that failed to decode.
func CorruptRow(detail string) *FlyDBError {
	return &FlyDBError{
		Code:     ErrCodeCorruptRow,
		Category: CategoryStorage,
		Message:  "corrupt row image",
		Detail:   detail,
	}
}

// CorruptIndex reports an AVL tree whose linkage violates an invariant.
func CorruptIndex(detail string) *FlyDBError {
	return &FlyDBError{
		Code:     ErrCodeCorruptIndex,
		Category: CategoryStorage,
		Message:  "corrupt index structure",
		Detail:   detail,
	}
}

// CorruptHeader reports a data-file header that failed validation.
func CorruptHeader(detail string) *FlyDBError {
	return &FlyDBError{
		Code:     ErrCodeCorruptHeader,
		Category: CategoryStorage,
		Message:  "corrupt data file header",
		Detail:   detail,
	}
}

// StoreDuplicateKey reports a unique-index violation detected by the
// AVL index during insert.
func StoreDuplicateKey(indexID int) *FlyDBError {
	return &FlyDBError{
		Code:     ErrCodeStoreDuplicate,
		Category: CategoryStorage,
		Message:  fmt.Sprintf("duplicate key in unique index %d", indexID),
	}
}

// OutOfMemory reports an allocation failure in the data-file cache.
func OutOfMemory(detail string) *FlyDBError {
	return &FlyDBError{
		Code:     ErrCodeOutOfMemory,
		Category: CategoryStorage,
		Message:  "out of memory",
		Detail:   detail,
	}
}

// Interrupted reports a blocking storage operation cancelled via context.
func Interrupted() *FlyDBError {
	return &FlyDBError{
		Code:     ErrCodeInterrupted,
		Category: CategoryStorage,
		Message:  "operation interrupted",
	}
}

// TextEncodingError reports a TEXT TABLE field containing an
// unquotable separator.
func TextEncodingError(field, sep string) *FlyDBError {
	return &FlyDBError{
		Code:     ErrCodeTextEncoding,
		Category: CategoryStorage,
		Message:  fmt.Sprintf("field %q contains separator %q and quoting is disabled", field, sep),
	}
}

// StorageTableExists reports a CreateTable call against a table whose
// data file is already open or already present on disk.
func StorageTableExists(name string) *FlyDBError {
	return &FlyDBError{
		Code:     ErrCodeTableExists,
		Category: CategoryStorage,
		Message:  fmt.Sprintf("table %q already exists", name),
	}
}

// StorageTableNotOpen reports a request against a table the engine
// has not opened (never created this session, or already dropped).
func StorageTableNotOpen(name string) *FlyDBError {
	return &FlyDBError{
		Code:     ErrCodeTableNotOpen,
		Category: CategoryStorage,
		Message:  fmt.Sprintf("table %q is not open", name),
	}
}
