// Package fsutil writes files so that readers never see a partial document.
package fsutil
