package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store 和 core.KeyValueStore 接口。
//
// 示例：
//   var cache core.Store = NewMemoryStore()
//   var kv core.KeyValueStore = NewMemoryStore()
//
// 领域数据（电影、交互、画像、遥测）的内存实现见 memdata.go，
// 用于测试、示例和原型。
