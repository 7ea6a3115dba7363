package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func mysqlError(number uint16) *mysql.MySQLError {
	return &mysql.MySQLError{Number: number, Message: "simulated"}
}

func TestClassifyDBError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyDBError(nil))
}

func TestClassifyDBError_RecordNotFound(t *testing.T) {
	dbErr := ClassifyDBError(gorm.ErrRecordNotFound)
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrorTypeNotFound, dbErr.Type)

	// Wrapped GORM errors classify the same way
	wrapped := fmt.Errorf("load trade: %w", gorm.ErrRecordNotFound)
	assert.Equal(t, ErrorTypeNotFound, ClassifyDBError(wrapped).Type)
}

func TestClassifyDBError_MySQLCodes(t *testing.T) {
	cases := []struct {
		code uint16
		want DatabaseErrorType
	}{
		{1062, ErrorTypeDuplicateKey},
		{3140, ErrorTypeInvalidJSON},
		{3141, ErrorTypeInvalidJSON},
		{3142, ErrorTypeInvalidJSON},
		{3143, ErrorTypeInvalidJSON},
		{1406, ErrorTypeDataTooLong},
		{1452, ErrorTypeConstraintViolation},
		{1451, ErrorTypeConstraintViolation},
		{1213, ErrorTypeDeadlock},
		{1048, ErrorTypeInvalidValue},
		{1265, ErrorTypeInvalidValue},
		{1366, ErrorTypeInvalidValue},
		{9999, ErrorTypeUnknown},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("code_%d", tc.code), func(t *testing.T) {
			dbErr := ClassifyDBError(mysqlError(tc.code))
			require.NotNil(t, dbErr)
			assert.Equal(t, tc.want, dbErr.Type)
			assert.Equal(t, tc.code, dbErr.MySQLErrCode)
		})
	}
}

func TestClassifyDBError_WrappedMySQLError(t *testing.T) {
	wrapped := fmt.Errorf("insert trade: %w", mysqlError(1062))
	dbErr := ClassifyDBError(wrapped)
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrorTypeDuplicateKey, dbErr.Type)
}

func TestClassifyDBError_ConnectionErrors(t *testing.T) {
	for _, msg := range []string{
		"dial tcp 127.0.0.1:3306: connect: connection refused",
		"read: Connection Reset by peer",
		"invalid connection: broken pipe",
		"i/o timeout",
	} {
		dbErr := ClassifyDBError(errors.New(msg))
		require.NotNil(t, dbErr)
		assert.Equal(t, ErrorTypeConnectionError, dbErr.Type, msg)
	}
}

func TestClassifyDBError_Unknown(t *testing.T) {
	dbErr := ClassifyDBError(errors.New("something else entirely"))
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrorTypeUnknown, dbErr.Type)
}

func TestDatabaseError_ErrorAndUnwrap(t *testing.T) {
	orig := mysqlError(1062)
	dbErr := ClassifyDBError(orig)

	assert.Contains(t, dbErr.Error(), "MySQL error 1062")
	assert.True(t, errors.Is(dbErr, orig))

	var target *mysql.MySQLError
	assert.True(t, errors.As(dbErr, &target))
}

func TestPredicateHelpers(t *testing.T) {
	assert.True(t, IsDuplicateKeyError(mysqlError(1062)))
	assert.False(t, IsDuplicateKeyError(mysqlError(1213)))

	assert.True(t, IsNotFoundError(gorm.ErrRecordNotFound))
	assert.False(t, IsNotFoundError(nil))

	assert.True(t, IsInvalidJSONError(mysqlError(3140)))
	assert.True(t, IsConstraintViolationError(mysqlError(1452)))
	assert.True(t, IsDeadlockError(mysqlError(1213)))
}
