package services

import (
	"errors"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// isDuplicateEntry catches MySQL 1062 for paths where the driver does
// not translate to gorm.ErrDuplicatedKey.
func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}

// lockForUpdate adds FOR UPDATE on engines that support it. SQLite
// (used by the test suite) has no row locks and serializes writers on
// the single connection instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
