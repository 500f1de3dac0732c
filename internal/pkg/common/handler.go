package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"sync"

	"learnhub_client/internal/pkg/uploader"
	"learnhub_client/pkg/response"

	"github.com/gin-gonic/gin"
)

// UploadFile 上传文件 (支持批量)
func UploadFile(up uploader.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 解析 multipart form
		form, err := c.MultipartForm()
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid form data")
			return
		}

		files := form.File["files"]
		if len(files) == 0 {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "No files uploaded")
			return
		}

		// 结果数组，预分配大小
		urls := make([]string, len(files))

		var wg sync.WaitGroup
		var errOnce sync.Once
		var uploadErr error

		// 限制并发数为 5，避免过多协程
		sem := make(chan struct{}, 5)

		for i, file := range files {
			wg.Add(1)
			go func(index int, f *multipart.FileHeader) {
				defer wg.Done()

				sem <- struct{}{}
				defer func() { <-sem }()

				url, err := up.UploadFile(f)
				if err != nil {
					errOnce.Do(func() {
						uploadErr = err
					})
					return
				}

				// 直接按索引赋值，保证顺序
				urls[index] = url
			}(i, file)
		}

		wg.Wait()

		if uploadErr != nil {
			if errors.Is(uploadErr, uploader.ErrTooLarge) || errors.Is(uploadErr, uploader.ErrTypeNotAllowed) {
				response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, uploadErr.Error())
				return
			}
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Upload failed: "+uploadErr.Error())
			return
		}

		response.Success(c, urls)
	}
}

// ServeMedia 回读已上传的媒体
func ServeMedia(store uploader.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj, ok := store.Open(c.Param("key"))
		if !ok {
			response.Error(c, http.StatusNotFound, response.ErrInvalidParam, "Media not found")
			return
		}
		c.Data(http.StatusOK, obj.ContentType, obj.Data)
	}
}
