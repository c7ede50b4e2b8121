/*
Package handler provides the HTTP handlers and routing for the Community Hub server.

This file contains the file attachment endpoints. Uploads and downloads go
straight to the bucket through pre-signed URLs; the server never proxies
file bytes.
*/
package handler

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"communityhub/internal/pkg/auth/jwt"
	"communityhub/internal/pkg/errs"
	"communityhub/internal/pkg/logx"
	"communityhub/internal/pkg/randx"
	"communityhub/internal/pkg/req"
	"communityhub/internal/pkg/resp"
)

const (
	// MaxUploadFileSize limits attachments to 20 MiB.
	MaxUploadFileSize = 20 << 20

	// PresignedURLDuration is how long a generated URL stays valid.
	PresignedURLDuration = 5 * time.Minute
)

// allowedUploadTypes maps accepted MIME types to the file extension stored
// under the object key.
var allowedUploadTypes = map[string]string{
	"image/jpeg":         ".jpg",
	"image/png":          ".png",
	"image/gif":          ".gif",
	"image/webp":         ".webp",
	"application/pdf":    ".pdf",
	"text/plain":         ".txt",
	"application/zip":    ".zip",
	"video/mp4":          ".mp4",
	"audio/mpeg":         ".mp3",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       ".xlsx",
}

type PresignUploadInput struct {
	RoomID   string `json:"roomId"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

type PresignUploadOutput struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expiresIn"`
}

// HandlePresignUpload validates the attachment metadata and returns a
// pre-signed PUT URL scoped to the meeting room.
func HandlePresignUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)

		var input PresignUploadInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !randx.IsValidRoomID(input.RoomID) || input.FileName == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if input.FileSize <= 0 || input.FileSize > MaxUploadFileSize {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileSizeTooLarge))
			return
		}

		ext, ok := allowedUploadTypes[input.MimeType]
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileTypeInvalid))
			return
		}

		key := fmt.Sprintf("rooms/%s/%d-%s%s", input.RoomID, payload.UserID, randx.AnnouncementID(), ext)

		url, err := deps.StorageService.PresignUpload(r.Context(), key, input.MimeType, input.FileSize, PresignedURLDuration)
		if err != nil {
			logx.Error(err, "Failed to presign upload", "key", key)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, PresignUploadOutput{
			UploadURL: url,
			Key:       key,
			ExpiresIn: int64(PresignedURLDuration.Seconds()),
		})
	}
}

type PresignDownloadOutput struct {
	DownloadURL string `json:"downloadUrl"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// HandlePresignDownload returns a pre-signed GET URL for a stored object.
// Keys outside the rooms/ prefix are rejected.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		if !isValidObjectKey(key) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		url, err := deps.StorageService.PresignDownload(r.Context(), key, PresignedURLDuration)
		if err != nil {
			logx.Error(err, "Failed to presign download", "key", key)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, PresignDownloadOutput{
			DownloadURL: url,
			ExpiresIn:   int64(PresignedURLDuration.Seconds()),
		})
	}
}

// isValidObjectKey accepts only keys issued by HandlePresignUpload.
func isValidObjectKey(key string) bool {
	if !strings.HasPrefix(key, "rooms/") || len(key) > 512 {
		return false
	}
	cleaned := path.Clean(key)
	return cleaned == key && !strings.Contains(key, "..")
}
