package opcache

// Subscript and SetSubscript are thin sugar over Get/Set, grounded on
// original_source/'s PINCacheObjectSubscripting category (object[key] /
// object[key] = value on PINMemoryCache). Go has no subscript operator
// overload, so these just forward — SetSubscript ignores cost and
// per-entry age-limit, matching the original's subscript setter, which
// carries no cost or age-limit parameter either.
func (c *Cache) Subscript(key string) (any, bool) {
	return c.Get(key)
}

// SetSubscript stores value under key with zero cost and the cache-wide
// age limit. Use Set directly to specify a cost or a per-entry age limit.
func (c *Cache) SetSubscript(key string, value any) {
	_ = c.Set(key, value, 0, nil)
}
