package sysuser

// Package sysuser reads the host account databases (/etc/passwd, /etc/shadow,
// /etc/group) and answers the existence/membership/shell questions the
// normalization steps ask before acting.
//
// This package is strictly the read side: all mutation of account state goes
// through the system tools (useradd, usermod, chpasswd, chsh) so that the
// host's own locking and PAM/nss integration stay in charge.
