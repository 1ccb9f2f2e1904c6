package repositories

import "errors"

var (
	// ErrNotFound record ไม่มีอยู่
	ErrNotFound = errors.New("record not found")

	// ErrLeaseLost lease ของ attempt นี้ถูก claim ใหม่หรือหมดอายุแล้ว write ถูกปฏิเสธ
	ErrLeaseLost = errors.New("run lease lost")
)
