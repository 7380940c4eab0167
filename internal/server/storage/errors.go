package storage

import "errors"

// Общие ошибки хранилища
var (
	// ErrSnapshotNotFound у scope нет сохраненного снимка
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrEpochOrder эпохи дозаписи не продолжают сохраненные
	ErrEpochOrder = errors.New("epochs must increase strictly")

	// ErrStorageClosed операция над закрытым журналом
	ErrStorageClosed = errors.New("storage is closed")
)
