package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adoptly/apiserver/types"
)

func TestPetFilterWhere(t *testing.T) {
	where, args := PetFilter{}.where()
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = PetFilter{Status: types.PetAvailable, Species: " Dog "}.where()
	assert.Equal(t, " WHERE status = $1 AND LOWER(species) = LOWER($2)", where)
	assert.Equal(t, []any{types.PetAvailable, "Dog"}, args)
}

func TestPetDeleteRemovesAdoptionsAndReturnsImage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM adopters`)).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM pets WHERE id = $1 RETURNING image_key`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"image_key"}).AddRow("pets/abc.jpg"))
	mock.ExpectCommit()

	key, err := NewPetRepository(db).Delete(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "pets/abc.jpg", key)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPetDeleteMissingRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM adopters`)).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM pets`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"image_key"}))
	mock.ExpectRollback()

	_, err = NewPetRepository(db).Delete(context.Background(), 3)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func petRow(status types.PetStatus, imageKey string) *sqlmock.Rows {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "name", "species", "breed", "age", "description", "image_key", "status", "created_at", "updated_at",
	}).AddRow(3, "Rex", "dog", "", 2, "", imageKey, status, now, now)
}

func TestPetUpdateKeepsStoredStatusAndImage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`status = COALESCE(NULLIF($6::text, ''), status)`)).
		WithArgs("Rex", "dog", "", 2, "", "", sqlmock.AnyArg(), 3).
		WillReturnRows(petRow(types.PetAdopted, "pets/rex.jpg"))

	pet, err := NewPetRepository(db).Update(context.Background(), types.Pet{ID: 3, Name: "Rex", Species: "dog", Age: 2})
	require.NoError(t, err)
	assert.Equal(t, types.PetAdopted, pet.Status)
	assert.Equal(t, "pets/rex.jpg", pet.ImageKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPetUpdateNeverWritesImageKey(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(
		func(_, actual string) error {
			if strings.Contains(actual, "image_key =") {
				return fmt.Errorf("update writes image_key: %s", actual)
			}
			return nil
		})))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("UPDATE pets").WillReturnRows(petRow(types.PetAvailable, ""))

	_, err = NewPetRepository(db).Update(context.Background(), types.Pet{ID: 3, Name: "Rex", Species: "dog"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPetSetImageKeyLocksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT image_key FROM pets WHERE id = $1 FOR UPDATE`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"image_key"}).AddRow("pets/old.jpg"))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE pets SET image_key = $1, updated_at = $2 WHERE id = $3`)).
		WithArgs("pets/new.jpg", sqlmock.AnyArg(), 3).
		WillReturnRows(petRow(types.PetAdopted, "pets/new.jpg"))
	mock.ExpectCommit()

	pet, previous, err := NewPetRepository(db).SetImageKey(context.Background(), 3, "pets/new.jpg")
	require.NoError(t, err)
	assert.Equal(t, "pets/old.jpg", previous)
	assert.Equal(t, types.PetAdopted, pet.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPetSetImageKeyMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"image_key"}))
	mock.ExpectRollback()

	_, _, err = NewPetRepository(db).SetImageKey(context.Background(), 9, "pets/new.jpg")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
