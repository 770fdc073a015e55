package servers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tidwall/gjson"
)

// getInfo 返回当前的流信息汇总
func (s *Server) getInfo(writer http.ResponseWriter, r *http.Request) {
	info := s.source.HeaderInfo()
	if info == nil {
		writeJsonWithStatusCode(writer, http.StatusServiceUnavailable, commonResp{
			ErrNo:  http.StatusServiceUnavailable,
			ErrMsg: "流信息尚不可用",
		})
		return
	}
	writeJSON(writer, commonResp{Data: info})
}

// getInfoField 按 gjson 路径返回汇总中的单个字段，如 /api/info/video.codec
func (s *Server) getInfoField(writer http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	info := s.source.HeaderInfo()
	if info == nil {
		writeJsonWithStatusCode(writer, http.StatusServiceUnavailable, commonResp{
			ErrNo:  http.StatusServiceUnavailable,
			ErrMsg: "流信息尚不可用",
		})
		return
	}
	b, err := json.Marshal(info)
	if err != nil {
		writeJsonWithStatusCode(writer, http.StatusInternalServerError, commonResp{
			ErrNo:  http.StatusInternalServerError,
			ErrMsg: err.Error(),
		})
		return
	}
	result := gjson.GetBytes(b, path)
	if !result.Exists() {
		writeJsonWithStatusCode(writer, http.StatusNotFound, commonResp{
			ErrNo:  http.StatusNotFound,
			ErrMsg: "字段不存在: " + path,
		})
		return
	}
	writeJSON(writer, commonResp{Data: result.Value()})
}
