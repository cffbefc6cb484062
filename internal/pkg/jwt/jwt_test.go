package jwt

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestJWT(t *testing.T) {
	Convey("签发与校验访问令牌", t, func() {
		j := NewJWT("secret", time.Hour)

		token, err := j.GenerateToken("cli")
		So(err, ShouldBeNil)

		claims, err := j.ValidateToken(token)
		So(err, ShouldBeNil)
		So(claims.Subject, ShouldEqual, "cli")

		Convey("密钥不同的令牌无效", func() {
			_, err := NewJWT("other", time.Hour).ValidateToken(token)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("过期令牌返回 ErrExpiredToken", func() {
			expired := &JWT{secret: []byte("secret"), expiration: -time.Minute}
			old, err := expired.GenerateToken("cli")
			So(err, ShouldBeNil)
			_, err = j.ValidateToken(old)
			So(err, ShouldEqual, ErrExpiredToken)
		})

		Convey("非正有效期使用默认值", func() {
			So(NewJWT("s", 0).Expiration(), ShouldEqual, DefaultExpiration)
		})
	})
}
