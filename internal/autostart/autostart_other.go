//go:build !linux

package autostart

func Install(Options) error { return ErrUnsupported }

func Uninstall(Options) error { return ErrUnsupported }

func Query(Options) Status { return Status{} }
