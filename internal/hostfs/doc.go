package hostfs

// Package hostfs provides safe access helpers for host filesystem state.
//
// hostprep usually runs directly on the machine it is normalizing, so the
// default root is "/". When driving a host whose filesystem is bind-mounted
// into a management container, inject the mount point instead:
//
//   /etc/passwd  -> /host/etc/passwd
//   /home        -> /host/home
//
// This package focuses on path mapping and safe, atomic updates.
