/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// DummyService image endpoint stub: GET / and multipart POST /result
type DummyService struct {
	sleep      int64
	getStatus  int32
	postStatus int32
	dropPosts  int64
	gets       int64
	posts      int64
}

func NewDummyService() *DummyService {
	return &DummyService{}
}

// SetLatency sleep before every response
func (s *DummyService) SetLatency(d time.Duration) {
	atomic.StoreInt64(&s.sleep, int64(d))
}

// SetGetStatus forces GET response status, 0 restores normal behaviour
func (s *DummyService) SetGetStatus(code int) {
	atomic.StoreInt32(&s.getStatus, int32(code))
}

// SetPostStatus forces POST response status, 0 restores normal behaviour
func (s *DummyService) SetPostStatus(code int) {
	atomic.StoreInt32(&s.postStatus, int32(code))
}

// DropPosts closes connection without response for the next n POST requests
func (s *DummyService) DropPosts(n int) {
	atomic.StoreInt64(&s.dropPosts, int64(n))
}

// Gets received GET requests
func (s *DummyService) Gets() int64 {
	return atomic.LoadInt64(&s.gets)
}

// Posts received POST requests
func (s *DummyService) Posts() int64 {
	return atomic.LoadInt64(&s.posts)
}

func (s *DummyService) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/", s.handleGet)
	r.POST("/", s.handlePost)
	r.POST("/result", s.handlePost)
	return r
}

func (s *DummyService) handleGet(c *gin.Context) {
	atomic.AddInt64(&s.gets, 1)
	time.Sleep(time.Duration(atomic.LoadInt64(&s.sleep)))
	if code := atomic.LoadInt32(&s.getStatus); code != 0 {
		c.Status(int(code))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "ok",
	})
}

func (s *DummyService) handlePost(c *gin.Context) {
	atomic.AddInt64(&s.posts, 1)
	time.Sleep(time.Duration(atomic.LoadInt64(&s.sleep)))
	if atomic.AddInt64(&s.dropPosts, -1) >= 0 {
		if conn, _, err := c.Writer.Hijack(); err == nil {
			_ = conn.Close()
			return
		}
	} else {
		atomic.AddInt64(&s.dropPosts, 1)
	}
	if code := atomic.LoadInt32(&s.postStatus); code != 0 {
		c.Status(int(code))
		return
	}
	width, err := strconv.Atoi(c.PostForm("width"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "width must be integer"})
		return
	}
	height, err := strconv.Atoi(c.PostForm("height"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "height must be integer"})
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		file, err = c.FormFile("file")
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file part is missing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result": gin.H{
			"width":    width,
			"height":   height,
			"format":   c.PostForm("format"),
			"filename": file.Filename,
			"size":     file.Size,
		},
	})
}

// RunTestServer serves dummy service on target
func RunTestServer(target string, s *DummyService) *http.Server {
	srv := &http.Server{
		Addr:    target,
		Handler: s.Handler(),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Print(err.Error())
		}
	}()
	return srv
}
