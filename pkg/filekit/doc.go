// Package filekit stores files in a pluggable object store, spreading them
// over numbered shard directories and notifying observers around every save
// and delete.
//
// Any gocloud.dev/blob bucket can serve as the store via [BucketBackend];
// other stores implement [Backend] directly.
//
// # Saving
//
// [Storage.Save] picks the current shard, allocates a path, fires
// [BeforeSave], streams the file to the backend and fires [AfterSave]:
//
//	backend, _ := filekit.OpenBucketBackend(ctx, "file:///var/uploads")
//	store, _ := filekit.New(backend, filekit.WithMaxFilesPerShard(10000))
//
//	f, _ := filekit.NewFile("/tmp/photo.jpg")
//	path, err := store.Save(ctx, f)
//	// path == "1/ZbVh0yQm3u0Wk6f2C8m1Fh3p7yQ9x2aB.jpg"
//
// By default the stored name is random and never collides with an existing
// object. [PreserveFileName] keeps the source base name instead (without its
// extension) and skips the collision check; [Overwrite] decides whether an
// existing object is replaced or the save is declined.
//
// # Sharding
//
// Objects live under "<shard>/" where shard starts at 1. The current index
// is persisted in the backend under [ShardIndexKey] as decimal text:
//
//	{bucket}/.dirindex
//	{bucket}/1/...
//	{bucket}/2/...
//
// Before each save the index is read back and, if the current shard holds
// more than the configured number of entries, incremented. The check is lazy,
// so a shard may end up with one entry over the limit.
//
// The read-check-increment sequence runs under a [Locker]. The default
// [MutexLocker] covers a single process; pkg/redislock provides a lock for
// several processes sharing one bucket.
//
// # Events
//
// Observers registered with [Storage.On] run synchronously in registration
// order. An observer error aborts the operation and is returned as an [Error]
// of kind [KindObserver].
//
// # Errors
//
// Failures are returned as [*Error] values classified by [Kind]:
// [KindBackend] when the store could not be reached, [KindAllocation] when
// no free name was found, [KindObserver] for observer failures,
// [KindDeclined] when the store refused the operation and [KindSource] when
// the local file could not be read.
package filekit
