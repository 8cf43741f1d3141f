package utils

import (
	"context"
	"errors"
	"reflect"

	"github.com/homiestan/homiestan_backend/config"
)

// check if id exists, using home_id in WHERE, return RecordNotFound Error
func ValidateResourceId[T any](ctx context.Context, homeId int, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, homeId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// check if ALL ids exist, using home_id in WHERE, return RecordNotFound Error
func ValidateResourcesId[M any, ID comparable](ctx context.Context, homeId int, ids []ID) error {
	unqIds := UniqueSlice(ids)

	count, err := ResourceCountWhere[M](ctx, homeId, "id IN ?", unqIds)
	if err != nil {
		return err
	}
	if count != int64(len(unqIds)) {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, homeId int, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, homeId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, homeId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// count records, using WHERE home_id = ? AND $condition
// homeId can be zero for queries not scoped to a home
func ResourceCountWhere[T any](ctx context.Context, homeId int, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if homeId > 0 {
		dbCtx.Where("home_id = ?", homeId)
	}
	dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
