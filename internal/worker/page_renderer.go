package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Screenshotter 把一份完整的 HTML 文档截成 JPEG。
type Screenshotter interface {
	Capture(ctx context.Context, html []byte, quality int) ([]byte, error)
}

const (
	snapshotViewportWidth  = 1280
	snapshotViewportHeight = 800
)

// RodScreenshotter 为每次截图启动一个无头 Chromium。
type RodScreenshotter struct {
	logger *slog.Logger
	// BrowserBin 为空时使用 launcher.LookPath 找到的浏览器，再不行由 rod 自动下载。
	browserBin string
	timeout    time.Duration
}

// NewRodScreenshotter 创建基于 go-rod 的截图器。
func NewRodScreenshotter(logger *slog.Logger, browserBin string) *RodScreenshotter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RodScreenshotter{logger: logger, browserBin: strings.TrimSpace(browserBin), timeout: 60 * time.Second}
}

func (r *RodScreenshotter) Capture(ctx context.Context, html []byte, quality int) (_ []byte, err error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	defer launch.Cleanup()

	if r.browserBin != "" {
		launch = launch.Bin(r.browserBin)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).Context(ctx).Timeout(r.timeout)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             snapshotViewportWidth,
		Height:            snapshotViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		r.logger.Warn("wait load failed, continue", slog.Any("error", err))
	}

	// 等待 WebFont 就绪，避免回退字体导致缩略图排版不同
	if _, evalErr := page.Timeout(5 * time.Second).Eval(`() => {
	  if (document && document.fonts && document.fonts.ready) {
	    return Promise.race([
	      document.fonts.ready.then(() => true),
	      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
	    ]);
	  }
	  return true;
	}`); evalErr != nil {
		r.logger.Warn("document.fonts.ready wait failed, continue", slog.Any("error", evalErr))
	}

	if err := page.Timeout(10 * time.Second).WaitIdle(2 * time.Second); err != nil {
		r.logger.Warn("wait idle failed, continue", slog.Any("error", err))
	}

	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: intPtr(quality),
	})
	if err != nil {
		return nil, fmt.Errorf("page screenshot: %w", err)
	}
	return data, nil
}

func intPtr(value int) *int {
	return &value
}
