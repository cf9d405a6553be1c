package scanner

import (
	"sync"

	"github.com/gen2brain/beeep"
)

// Notifier delivers desktop notifications about watch-mode findings
type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier implements Notifier through the system notification daemon
type DesktopNotifier struct{}

func (d *DesktopNotifier) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Notification is one recorded fake notification
type Notification struct {
	Title   string
	Message string
}

// FakeNotifier implements Notifier for testing without touching the desktop.
// Use this in unit tests to avoid popping real notifications.
type FakeNotifier struct {
	mu            sync.Mutex
	Notifications []Notification
}

func (f *FakeNotifier) Notify(title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Notifications = append(f.Notifications, Notification{Title: title, Message: message})
	return nil
}

// Count returns how many notifications were recorded
func (f *FakeNotifier) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Notifications)
}

// Last returns the most recent notification, or a zero value when none exist
func (f *FakeNotifier) Last() Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Notifications) == 0 {
		return Notification{}
	}
	return f.Notifications[len(f.Notifications)-1]
}
