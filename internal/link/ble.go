package link

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"
)

// BLEConfig BLE 直连配置
type BLEConfig struct {
	Address     string        // 传感器 MAC 地址
	NotifyUUID  string        // 通知特征 UUID
	ScanTimeout time.Duration // 扫描超时
}

// ErrDeviceNotFound 扫描超时仍未发现目标设备
var ErrDeviceNotFound = errors.New("ble device not found")

// BLELink 通过 BLE GATT 通知接收数据
type BLELink struct {
	cfg     BLEConfig
	adapter *bluetooth.Adapter
	logger  *zap.Logger

	enableOnce sync.Once
	enableErr  error

	mu      sync.Mutex
	current *session
}

// NewBLELink 使用系统默认适配器
func NewBLELink(cfg BLEConfig, logger *zap.Logger) *BLELink {
	return &BLELink{
		cfg:     cfg,
		adapter: bluetooth.DefaultAdapter,
		logger:  logger,
	}
}

func (l *BLELink) Name() string {
	return "ble:" + l.cfg.Address
}

func (l *BLELink) enable() error {
	l.enableOnce.Do(func() {
		if err := l.adapter.Enable(); err != nil {
			l.enableErr = fmt.Errorf("failed to enable ble adapter: %w", err)
			return
		}
		l.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
			if connected || !strings.EqualFold(device.Address.String(), l.cfg.Address) {
				return
			}
			l.mu.Lock()
			sess := l.current
			l.mu.Unlock()
			if sess != nil {
				sess.lost(errors.New("device disconnected"))
			}
		})
	})
	return l.enableErr
}

// Connect 扫描 → 连接 → 查找通知特征 → 订阅通知
func (l *BLELink) Connect(ctx context.Context, onNotify NotificationHandler) (Session, error) {
	if err := l.enable(); err != nil {
		return nil, err
	}

	var (
		found  bluetooth.ScanResult
		seen   bool
		mu     sync.Mutex
		timer  = time.AfterFunc(l.cfg.ScanTimeout, func() { l.adapter.StopScan() })
		cancel = context.AfterFunc(ctx, func() { l.adapter.StopScan() })
	)
	err := l.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		if !strings.EqualFold(result.Address.String(), l.cfg.Address) {
			return
		}
		mu.Lock()
		found, seen = result, true
		mu.Unlock()
		adapter.StopScan()
	})
	timer.Stop()
	cancel()
	if err != nil {
		return nil, fmt.Errorf("ble scan failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mu.Lock()
	ok := seen
	mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s within %s", ErrDeviceNotFound, l.cfg.Address, l.cfg.ScanTimeout)
	}

	device, err := l.adapter.Connect(found.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", l.cfg.Address, err)
	}

	sess := newSession()
	sess.setCloser(device.Disconnect)

	if err := l.subscribe(device.DiscoverServices, onNotify); err != nil {
		device.Disconnect()
		return nil, err
	}

	l.mu.Lock()
	l.current = sess
	l.mu.Unlock()

	l.logger.Info("Subscribed to sensor notifications",
		zap.String("address", l.cfg.Address),
		zap.String("characteristic", l.cfg.NotifyUUID),
	)
	return sess, nil
}

func (l *BLELink) subscribe(discover func([]bluetooth.UUID) ([]bluetooth.DeviceService, error), onNotify NotificationHandler) error {
	want, err := bluetooth.ParseUUID(l.cfg.NotifyUUID)
	if err != nil {
		return fmt.Errorf("invalid notify uuid %q: %w", l.cfg.NotifyUUID, err)
	}

	services, err := discover(nil)
	if err != nil {
		return fmt.Errorf("failed to discover services: %w", err)
	}

	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			l.logger.Debug("Failed to discover characteristics",
				zap.String("service", svc.UUID().String()),
				zap.Error(err),
			)
			continue
		}
		for _, c := range chars {
			if c.UUID() != want {
				continue
			}
			if err := c.EnableNotifications(func(buf []byte) {
				// buf 在回调返回后可能被复用
				frame := make([]byte, len(buf))
				copy(frame, buf)
				onNotify(frame)
			}); err != nil {
				return fmt.Errorf("failed to enable notifications: %w", err)
			}
			return nil
		}
	}

	return fmt.Errorf("notify characteristic %s not found", l.cfg.NotifyUUID)
}
